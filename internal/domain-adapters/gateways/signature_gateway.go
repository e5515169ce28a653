package gateways

import (
	"github.com/ochairo/attestgate/internal/domain/interfaces/gateways"
	"github.com/ochairo/attestgate/internal/external-adapters/gpg"
)

// signatureGateway adapts the external gpg package to the domain gateway
// interface. It hands out a brand-new gpg.Context per attestation; no keyring
// is shared between contexts or across runs.
type signatureGateway struct{}

// NewSignatureGateway creates a new signature gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSignatureGateway() *signatureGateway {
	return &signatureGateway{}
}

// NewContext mints a fresh, isolated verification context.
func (g *signatureGateway) NewContext() gateways.SignatureContext {
	return &signatureContext{ctx: gpg.NewContext()}
}

type signatureContext struct {
	ctx *gpg.Context
}

func (c *signatureContext) ImportArmoredKey(armor []byte) (gateways.ImportResult, error) {
	result, err := c.ctx.ImportArmoredKey(armor)
	return gateways.ImportResult{
		Imported: result.Imported,
		Rejected: result.Rejected,
	}, err
}

func (c *signatureContext) VerifyDetached(data, signature []byte) (gateways.SignatureReport, error) {
	result, err := c.ctx.VerifyDetached(data, signature)
	if err != nil {
		return gateways.SignatureReport{}, err
	}

	return gateways.SignatureReport{
		Valid:          result.Valid,
		SignatureCount: result.SignatureCount,
		SignerIdentity: result.SignerIdentity,
		Status:         result.Status,
	}, nil
}
