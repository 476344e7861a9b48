package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/mt-bridge/internal/config"
)

// ApplicationName identifies bridge sessions in pg_stat_activity.
const ApplicationName = "mt-bridge"

// BuildConnString builds a PostgreSQL connection URL from config.
// User and password are escaped as URL userinfo.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}
