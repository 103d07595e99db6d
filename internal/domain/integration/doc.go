// Package integration contains the Integration bounded context.
// This context describes the target commerce platform the legacy catalog is migrated into.
//
// Key concepts:
//   - Storefront: Port interface for the platform's GraphQL mutations and product listing
//   - TokenIssuer: Port for exchanging staff credentials for a bearer token
//   - MutationError: Structured rejection returned inside a mutation payload
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
