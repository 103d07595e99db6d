// Package models contains GORM persistence models for the legacy shop schema.
// These models are separate from domain rows to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain rows carry no GORM tags
// 2. Persistence models contain the table and column mappings of the legacy schema
// 3. Each model converts itself to its domain row with ToDomain
// 4. The legacy schema is only read; models are never written outside of tests
package models
