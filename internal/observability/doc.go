// Package observability records schedule events as JSON Lines and derives
// schedule metrics and slip alerts from them on demand. Alerts can be pushed
// to a Slack webhook.
package observability
