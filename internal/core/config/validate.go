package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/techtrack/internal/core/validate"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// URL syntax, listen addresses and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateEndpoints(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.GitHub.Token == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "GitHub",
			Item:     "token",
			Message:  "no token set; repository search is limited to 10 unauthenticated requests per minute",
		})
	}

	if c.Storage.Driver == DriverMemory {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "driver",
			Message:  "memory driver keeps nothing between runs",
		})
	}

	if c.Storage.Path != "" && c.Storage.Driver != DriverJSON {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "path",
			Message:  fmt.Sprintf("path is only used by the json driver (driver is %q)", c.Storage.Driver),
		})
	}

	if c.Server.Pprof && !isLoopback(c.Server.Addr) {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "pprof",
			Message:  fmt.Sprintf("profiling endpoints are exposed on non-loopback address %s", c.Server.Addr),
		})
	}

	return warnings
}

// validateFileAccess checks the config file, data directory and json storage
// path.
func (c *Config) validateFileAccess(configPath string) error {
	errs := []error{
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	}
	if c.Storage.Driver == DriverJSON {
		errs = append(errs, criterio.Run("storage.path", c.StorageFile(), parentIsDirectoryOrNotExist))
	}
	return criterio.ValidateStruct(errs...)
}

func (c *Config) validateEndpoints() error {
	return criterio.ValidateStruct(
		validate.HTTPURLField("github.api_url", c.GitHub.APIURL),
		validate.HTTPURLField("jobs.api_url", c.Jobs.APIURL),
		criterio.Run("server.addr", c.Server.Addr, listenAddress),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func parentIsDirectoryOrNotExist(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return isDirectoryOrNotExist(filepath.Dir(path))
}

func listenAddress(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	return nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
