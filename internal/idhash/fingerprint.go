package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"currency-crisis-lab/internal/domain"
)

// PriceTableFingerprint computes a deterministic content fingerprint of a
// canonical price table using SHA256.
// Each row contributes date|open|high|low|close|change_amount|change_percent;
// NULL fields are written as "-". Returns hex-encoded hash (64 characters).
func PriceTableFingerprint(rows []domain.PriceRow) string {
	h := sha256.New()
	var b strings.Builder
	for _, r := range rows {
		b.Reset()
		b.WriteString(r.DateKey())
		for _, v := range []*float64{r.Open, r.High, r.Low, r.Close, r.ChangeAmount, r.ChangePercent} {
			b.WriteByte('|')
			b.WriteString(formatNullable(v))
		}
		b.WriteByte('\n')
		h.Write([]byte(b.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// formatNullable renders v with the shortest exact representation.
func formatNullable(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
