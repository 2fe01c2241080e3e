package service

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"wallet_core/models"
)

const (
	MethodPIN = "pin"

	minPINLength = 4
)

// ConfirmationProvider checks the proof the UI collected for an outbound
// transaction.
type ConfirmationProvider interface {
	Verify(ctx context.Context, tx models.Transaction, proof models.ConfirmationProof) error
}

// PINVerifier accepts a numeric PIN matching a bcrypt hash.
type PINVerifier struct {
	hash []byte
}

func NewPINVerifier(hash string) (*PINVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, errors.Wrap(err, "invalid PIN hash")
	}
	return &PINVerifier{hash: []byte(hash)}, nil
}

// HashPIN produces the value NewPINVerifier expects.
func HashPIN(pin string) (string, error) {
	if err := checkPINShape(pin); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash PIN")
	}
	return string(hash), nil
}

func (v *PINVerifier) Verify(ctx context.Context, tx models.Transaction, proof models.ConfirmationProof) error {
	if proof.Cancelled {
		return errors.Wrapf(models.ErrConfirmationCancelled, "transaction %s", tx.ID)
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(models.ErrConfirmationCancelled, "transaction %s: %v", tx.ID, err)
	}
	if proof.Method != "" && proof.Method != MethodPIN {
		return errors.Wrapf(models.ErrConfirmationRejected, "unsupported method %q", proof.Method)
	}
	if err := checkPINShape(proof.Secret); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(proof.Secret)); err != nil {
		return errors.Wrapf(models.ErrConfirmationRejected, "transaction %s: wrong PIN", tx.ID)
	}
	return nil
}

func checkPINShape(pin string) error {
	if len(pin) < minPINLength {
		return errors.Wrapf(models.ErrConfirmationRejected, "PIN must have at least %d digits", minPINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.Wrap(models.ErrConfirmationRejected, "PIN must be numeric")
		}
	}
	return nil
}
