/*
Package webhook turns git-host push notifications into deployments.

Each project owns a crypto-random 48-hex secret; the webhook URL embeds it
(POST /api/webhooks/{secret}) and knowing the secret is the authentication.
There is no payload signature verification: the secret never appears outside
the URL the operator pasted into the git host, which is the same trust model
as a deploy key.

Only push events trigger anything. The event type comes from the
X-GitHub-Event header, falling back to X-Event-Type for other senders; a
delivery with neither header is treated as a push so plain curl works. The
push must target the project's configured branch (payload ref
"refs/heads/<branch>"), otherwise the delivery is acknowledged with a
skipped outcome.

Accepted pushes trigger the deploy in a fire-and-forget goroutine and the
sender gets its 200 immediately. Git hosts time deliveries out in seconds
while a pipeline runs for minutes, so the delivery response only means
"accepted", never "deployed". The triggered deploy takes the same
per-project lock as a user-initiated one; if a deploy is already in flight
it fails with a conflict that is logged and dropped.
*/
package webhook
