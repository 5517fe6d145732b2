// Package metrics defines Prometheus metrics for the encore API, covering
// logins, access gate rejections, rate limiting, uploads and HTTP traffic.
package metrics
