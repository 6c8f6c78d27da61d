// Package models defines domain entities for the reseller panel tooling.
//
// The package contains two categories of types:
//
// 1. Reference data: snapshots of the panel backend's configuration,
// read-only for the duration of a wizard session
//   - [Owner], [Tag], [ServicePackage] : subscription bookkeeping
//   - [PlexServer], [Library] : Plex servers with their shareable libraries
//   - [Panel] : IPTV panels with credit balance and optional editor playlist
//   - [EmailTemplate] : welcome/renewal templates
//
// 2. Job tracking: per-submission provisioning state
//   - [JobStatus] : pending → processing → completed|error, plus unknown
//     for jobs abandoned at the poll ceiling
//   - [SubJob] : one service's tracker within a submission, monotonic
//   - [JobResult] : the composite result across all sub-jobs
//
// Reference entities are plain snapshots; they have no identity lifecycle
// of their own and are replaced wholesale on cache refresh.
package models
