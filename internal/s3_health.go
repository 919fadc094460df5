package internal

import (
	"fmt"

	dynform "github.com/MaansiBisht/dynamic-form-app"
)

// ValidateExportConfig performs basic sanity checks on the S3 export settings.
func ValidateExportConfig(cfg dynform.ExportConfig) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("export.bucket is required")
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey == "" {
		return fmt.Errorf("export.accessKeyId provided without export.secretAccessKey")
	}
	if cfg.SecretAccessKey != "" && cfg.AccessKeyID == "" {
		return fmt.Errorf("export.secretAccessKey provided without export.accessKeyId")
	}
	return nil
}
