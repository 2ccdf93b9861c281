// Package governanceengine implements the Association Governance Decision
// Engine inside the association-governance context.
//
// The module owns the membership ledger, the rule set, ballot boxes,
// council elections, rule proposals and amendments, and the report to
// sanction escalation. Decisions are applied inside one unit of work per
// association and announced through outbox-backed workers. Business rules
// live in the application/domain layers; storage, identity, metrics and
// transport sit behind ports and adapters.
package governanceengine
