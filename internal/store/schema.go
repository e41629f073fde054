package store

// SchemaSQL defines the SurrealDB schema for intake threads.
//
// A thread row carries the symptom ledger and medication snapshots as
// flexible objects; those are whole-document overwrites on every save.
// Transcript messages live in their own table, append-only, ordered by
// a per-thread sequence number.
const SchemaSQL = `
DEFINE TABLE IF NOT EXISTS thread SCHEMAFULL;
DEFINE FIELD IF NOT EXISTS thread_id ON thread TYPE string;
DEFINE FIELD IF NOT EXISTS user_id ON thread TYPE string;
DEFINE FIELD IF NOT EXISTS created_at ON thread TYPE datetime;
DEFINE FIELD IF NOT EXISTS last_updated ON thread TYPE datetime;
DEFINE FIELD IF NOT EXISTS ledger ON thread FLEXIBLE TYPE object;
DEFINE FIELD IF NOT EXISTS medications ON thread FLEXIBLE TYPE option<object>;
DEFINE FIELD IF NOT EXISTS pending_fields ON thread TYPE array<string> DEFAULT [];
DEFINE FIELD IF NOT EXISTS pending_upload ON thread TYPE bool DEFAULT false;
DEFINE FIELD IF NOT EXISTS message_count ON thread TYPE int DEFAULT 0;
DEFINE INDEX IF NOT EXISTS thread_id_idx ON thread FIELDS thread_id UNIQUE;
DEFINE INDEX IF NOT EXISTS thread_user_idx ON thread FIELDS user_id;

DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
DEFINE FIELD IF NOT EXISTS thread_id ON message TYPE string;
DEFINE FIELD IF NOT EXISTS seq ON message TYPE int;
DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["user", "assistant"];
DEFINE FIELD IF NOT EXISTS text ON message TYPE string;
DEFINE FIELD IF NOT EXISTS timestamp ON message TYPE datetime;
DEFINE INDEX IF NOT EXISTS message_thread_idx ON message FIELDS thread_id, seq UNIQUE;
`
