// Package config manages sitectl settings and the site records stored in
// YAML format.
//
// Records are stored in the user's home directory at
// ~/.config/sitectl/config.yaml. A .env file next to it, and SITECTL_*
// environment variables, override the settings block.
//
// Example config.yaml:
//
//	settings:
//	  web_server: nginx
//	  nginx_binary: nginx
//	  certbot_binary: certbot
//	  cert_dir: /etc/letsencrypt/live
//	  timeout: 2m0s
//	  concurrency: 4
//	sites:
//	  blog:
//	    name: blog
//	    domain: blog.example.com
//	    extra_domains: www.blog.example.com
//	    owner: admin@example.com
//	    ssl_enabled: true
//	    root: /var/www/blog
//	    web_server: nginx
//	    application: static
//	    status: ready
//
// A site moves between statuses as it is activated: ready sites are
// skipped, valid sites carry the last configuration that passed the web
// server's syntax check in ValidConfig, and sites whose last activation
// failed are marked error with the reason in StatusInfo.
//
// Config operations are NOT thread-safe. Callers must implement their own
// synchronization if accessing Config from multiple goroutines.
package config
