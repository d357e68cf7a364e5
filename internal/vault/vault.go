// Package vault keeps the AI provider key in the system keychain.
package vault

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const Service = "codeshot"

var ErrNotFound = errors.New("no key stored")

// CredentialManager stores one secret per provider.
type CredentialManager struct {
	service string
}

func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: Service}
}

func (cm *CredentialManager) Store(provider, token string) error {
	if token == "" {
		return fmt.Errorf("store %s key: empty key", provider)
	}
	if err := keyring.Set(cm.service, provider, token); err != nil {
		return fmt.Errorf("store %s key: %w", provider, err)
	}
	return nil
}

func (cm *CredentialManager) Retrieve(provider string) (string, error) {
	token, err := keyring.Get(cm.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w for %s", ErrNotFound, provider)
	}
	if err != nil {
		return "", fmt.Errorf("retrieve %s key: %w", provider, err)
	}
	return token, nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (cm *CredentialManager) Delete(provider string) error {
	err := keyring.Delete(cm.service, provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete %s key: %w", provider, err)
	}
	return nil
}

// Resolve prefers an explicit key and falls back to the keychain.
func (cm *CredentialManager) Resolve(provider, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return cm.Retrieve(provider)
}
