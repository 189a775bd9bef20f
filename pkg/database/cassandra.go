package database

import (
	"time"

	"github.com/gocql/gocql"

	"github.com/veilgram/feedsvc/config"
)

// InitCassandra connects to the wide-partition feed store. Callers should only
// invoke this when cassandra.enabled is set.
func InitCassandra(cfg *config.Config) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.Cassandra.Hosts...)
	cluster.Keyspace = cfg.Cassandra.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 5 * time.Second
	return cluster.CreateSession()
}
