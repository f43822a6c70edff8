package sqlite

import (
	_ "modernc.org/sqlite" // registers "sqlite", FTS5 included
)
