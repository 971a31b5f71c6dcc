package config

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
)

// ValidateConfig validates the entire configuration and returns all validation errors.
// A configuration without DoT providers fails with an error matching apperrors.ErrNoProviders.
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.General == nil {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "general",
			Message:   "configuration must contain 'general' section",
		})
	} else if err := validate.Struct(c.General); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "general", "")...)
	}

	validationErrors = append(validationErrors, c.validateBlockLists()...)

	if len(c.DoTProviders) == 0 {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "dot_provider",
			Message:   "at least one DNS-over-TLS provider must be defined",
		})
		return apperrors.Wrap(apperrors.ErrCodeNoProviders, "no DNS-over-TLS providers configured", validationErrors)
	}
	validationErrors = append(validationErrors, c.validateProviders()...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validateBlockLists() ValidationErrors {
	var validationErrors ValidationErrors

	for i, list := range c.HTTPBlockLists {
		itemName := fmt.Sprintf("http_block_list[%d]", i)
		if err := validate.Struct(list); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fmt.Sprintf("http_block_list.%d", i), itemName)...)
		}
	}

	for i, list := range c.FileBlockLists {
		itemName := fmt.Sprintf("file_block_list[%d]", i)
		if err := validate.Struct(list); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fmt.Sprintf("file_block_list.%d", i), itemName)...)
		}
		// A missing file is not an error here: it is skipped at refresh time
		// like any other failing source and may appear later.
	}

	return validationErrors
}

func (c *Config) validateProviders() ValidationErrors {
	var validationErrors ValidationErrors
	seen := make(map[string]bool)

	for i, provider := range c.DoTProviders {
		itemName := provider.Hostname
		if itemName == "" {
			itemName = fmt.Sprintf("dot_provider[%d]", i)
		}

		if err := validate.Struct(provider); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fmt.Sprintf("dot_provider.%d", i), itemName)...)
			continue
		}

		key := provider.String()
		if seen[key] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fmt.Sprintf("dot_provider.%d", i),
				Message:   fmt.Sprintf("duplicate provider: %s", key),
			})
		}
		seen[key] = true

		if certPath := provider.GetAbsCertPath(c); certPath != "" {
			if err := checkPEMCertificate(certPath); err != nil {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: fmt.Sprintf("dot_provider.%d.cert", i),
					Message:   err.Error(),
				})
			}
		}
	}

	return validationErrors
}

// checkPEMCertificate verifies that path holds at least one PEM encoded X.509 certificate.
func checkPEMCertificate(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("certificate file does not exist: %s", path)
		}
		return fmt.Errorf("failed to read certificate file: %v", err)
	}

	block, _ := pem.Decode(content)
	if block == nil || block.Type != "CERTIFICATE" {
		return fmt.Errorf("no PEM certificate found in %s", path)
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return fmt.Errorf("invalid certificate in %s: %v", path, err)
	}
	return nil
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := fieldPrefix
			if e.Field() != "" {
				// e.Field() returns the TOML tag name because we registered TagNameFunc
				if fieldPrefix != "" {
					fieldPath = fieldPrefix + "." + e.Field()
				} else {
					fieldPath = e.Field()
				}
			}

			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
