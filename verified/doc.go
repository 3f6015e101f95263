// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package verified manages the trusted submitter allowlist.

A small operator-curated list of usernames may short-circuit loot pool
consensus: one submission from a verified user immediately becomes the
approved (but not locked) pool. The list lives in a plain text file,
one username per line, # for comments:

	# WynnExtras staff
	julianh06
	SomeTrustedPlayer

Load syncs the file into the verified_user table (adding and removing as
needed) at startup and whenever POST /admin/reload-verified-users is
called, so edits take effect without a restart. Membership checks are
case-insensitive.
*/
package verified
