/*
Package traffic switches live traffic between deployment slots by
rewriting the nginx upstream file and reloading the proxy.

The engine owns exactly one nginx include file. Site server blocks
proxy_pass to the upstream it defines, so repointing all traffic is a
one-file rewrite plus a reload:

	upstream versiongate_backend {
	  server 127.0.0.1:<port>;
	}

The file always holds exactly one server line. Blue-green switching
does not drain through weighted upstreams; the reload itself is the
cutover, and nginx finishes in-flight requests on the old workers.

# Switch Sequence

	render new config ──→ write <config>.tmp
	        │
	current config exists? ──→ copy to <config>.bak
	        │
	rename <config>.tmp over <config>   (same directory, atomic)
	        │
	nginx -s reload
	        │
	   reload failed? ──→ restore <config> from <config>.bak

A failed reload restores the backup before returning the error, so
traffic keeps flowing to the previous port and the caller can fail the
deployment without a dark window. The rendered content is verified to
contain the target port before any file is touched.

# Reading Back

Current parses the live file and returns the routed port, or 0 when
the file is missing or holds no upstream line. Boot and status paths
use it to report where traffic points without tracking extra state.

# Usage

	switcher := traffic.NewSwitcher(runner, cfg.NginxConfigPath)
	if err := switcher.SwitchTo(ctx, deployment.HostPort); err != nil {
		return err // old port still live
	}
*/
package traffic
