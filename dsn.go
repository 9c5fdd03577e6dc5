package strata

import (
	"net/url"
	"strings"
)

const (
	redisScheme       = "redis"
	redisSecureScheme = "rediss"
	valkeyScheme      = "valkey"
	natsScheme        = "nats"
)

// DSN is a connection string for a backing tier.
type DSN string

func (d DSN) String() string {
	return string(d)
}

// ToArray splits a comma separated DSN list, dropping empty entries.
func (d DSN) ToArray() []DSN {
	var list []DSN
	for _, part := range strings.Split(string(d), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			list = append(list, DSN(part))
		}
	}
	return list
}

func (d DSN) scheme() string {
	u, err := url.Parse(string(d))
	if err != nil {
		return ""
	}
	return u.Scheme
}

func (d DSN) IsRedis() bool {
	scheme := d.scheme()
	return scheme == redisScheme || scheme == redisSecureScheme
}

func (d DSN) IsValkey() bool {
	return d.scheme() == valkeyScheme
}

func (d DSN) IsNats() bool {
	return d.scheme() == natsScheme
}
