/*
Package config loads engine settings from the environment.

Configuration is read once at boot, validated, and treated as
immutable for the life of the process. There is no config file; the
engine is deployed as a systemd unit or container where environment
variables are the native configuration surface.

# Variables

	variable                 default                           meaning
	DATABASE_URL             (required)                        bbolt database file path
	PORT                     9090                              API listen port
	PROJECTS_ROOT_PATH       /var/versiongate/projects         git workspace root
	DOCKER_NETWORK           versiongate-net                   network app containers join
	NGINX_CONFIG_PATH        /etc/nginx/conf.d/upstream.conf   live upstream file
	LOG_LEVEL                info                              zerolog level
	LOG_FORMAT               json                              json or console
	WATCH_INTERVAL_SECONDS   60                                container watcher tick

DATABASE_URL accepts an optional file: prefix, which is stripped; the
rest is used verbatim as the database path.

Validate rejects a missing database path, out-of-range ports,
non-positive watch intervals, and unknown log formats at boot, where
the operator sees the message, rather than letting the bad value fail
later inside a deploy.
*/
package config
