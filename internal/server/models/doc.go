// Package models holds the records persisted by the server repositories.
package models
