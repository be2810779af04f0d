// Package database provides connection management, the connection gateway
// used for scoped statement execution, SQL error classification, query
// hooks, seed SQL execution and logging, built on top of Bun.
package database
