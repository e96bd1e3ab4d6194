// Package models maps orders and newsletter subscribers to their tables.
// Item lists and contacts are stored as jsonb snapshots so an order keeps
// the titles and prices the buyer saw at checkout.
package models
