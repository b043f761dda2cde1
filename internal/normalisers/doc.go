// Package normalisers turns fetched payloads into clean text with
// stable section anchors. Each format lives in its own subpackage; the
// registry here selects one by media type and priority. Shared helpers
// cover whitespace normalisation and legal-structure anchor detection
// (Розділ / Глава / Стаття / Пункт).
package normalisers
