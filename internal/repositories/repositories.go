// package repositories persists the lookup cache in SQLite.
//
// The cache mirrors the panel backend's reference data so wizard
// sessions can seed their dropdowns without waiting on the network.
// Each refresh replaces a kind's rows wholesale inside a transaction;
// rows carry a fetched_at timestamp recording snapshot age and a
// sequence column preserving the backend's ordering.
package repositories
