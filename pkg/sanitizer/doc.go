// Package sanitizer reduces inbound HTML mail to text the reply
// classifier can match keywords against.
package sanitizer
