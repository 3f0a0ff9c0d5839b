package service

import (
	"crypto/rand"
	"math/big"
)

const (
	invoiceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	invoiceLength   = 8
)

// InvoiceGenerator produces invoice numbers. Uniqueness is enforced by the
// database, not by the generator.
type InvoiceGenerator interface {
	Next() (string, error)
}

type randomInvoice struct {
	prefix string
}

func NewInvoiceGenerator(prefix string) InvoiceGenerator {
	if prefix == "" {
		prefix = "INV-"
	}
	return &randomInvoice{prefix: prefix}
}

func (g *randomInvoice) Next() (string, error) {
	buf := make([]byte, invoiceLength)
	max := big.NewInt(int64(len(invoiceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = invoiceAlphabet[n.Int64()]
	}
	return g.prefix + string(buf), nil
}
