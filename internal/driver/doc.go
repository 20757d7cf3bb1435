// Package driver manages the live configuration files of the web server
// and reloads the running service.
//
// Only nginx is supported. Two layouts are handled:
//
//   - Debian style: configurations are written to sites-available and
//     activated by a symlink in sites-enabled
//   - Single directory (conf.d, Homebrew servers/): configurations are
//     activated in place and deactivated by renaming them to .conf.disabled
//
// # Basic Usage
//
//	drv := driver.NewNginxWithPaths(
//	    "/etc/nginx/sites-available",
//	    "/etc/nginx/sites-enabled",
//	    executor.NewSystemExecutor(),
//	)
//
//	// Commit a validated configuration
//	err := drv.Write("example.com", candidate)
//
//	// Apply it
//	err = drv.Reload(ctx)
//
// Write is the only operation that touches the live path with new content.
// Callers are expected to have validated the content first.
//
// # Reload
//
// Reload runs "systemctl reload nginx" and falls back to "nginx -s reload"
// when systemd is not available.
//
// # Testing
//
// MockDriver records every call and lets tests override each operation:
//
//	mock := driver.NewMockDriver("nginx", "/tmp/available", "/tmp/enabled")
//	mock.ReloadFunc = func(ctx context.Context) error {
//	    return errors.New("reload failed")
//	}
package driver
