// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides the credential-authentication core for Gatehouse.
//
// # Domain Types
//
// Domain types (UserRecord, Session) should be created using their
// respective constructors:
//   - NewUserRecord - creates a UserRecord with validated fields and password hash
//   - NewSession - creates a Session with validated owner, kind, and expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - CredentialStore - user registration, lookup, password verification
//   - SessionIssuer - session token minting, validation, revocation
//   - Service - register/login/logout orchestration over the two above
//
// Services are created with New* constructors that validate dependencies.
package auth
