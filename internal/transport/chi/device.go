package chi

import (
	"fmt"
	"hash/fnv"
	"net/http"
)

// DeviceID derives the rate-limit identity from request headers, most
// trustworthy first: an explicit device id, then a MAC address, then a hash
// of the client-reported user agent. Each source gets its own prefix so the
// buckets never collide. No identifying header yields "", which the limiter
// pools into a shared anonymous bucket.
func DeviceID(r *http.Request) string {
	if v := r.Header.Get("X-Device-ID"); v != "" {
		return "device_" + v
	}
	if v := r.Header.Get("X-Mac-Address"); v != "" {
		return "mac_" + v
	}
	if v := r.Header.Get("X-User-Agent"); v != "" {
		h := fnv.New64a()
		_, _ = h.Write([]byte(v))
		return fmt.Sprintf("ua_%x", h.Sum64())
	}
	return ""
}
