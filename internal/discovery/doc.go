// Package discovery advertises a running pskrmon instance over mDNS as
// "_pskrmon._tcp" so dashboards on the LAN can find it.
package discovery
