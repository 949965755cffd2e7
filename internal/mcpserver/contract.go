package mcpserver

// MatchingRules describes how unlinked references are found and ranked.
const MatchingRules = `# Tether Matching Rules

Tether marks text in a note that names another page of the vault but is not
yet a [[wikilink]]. Clicking a mark (or calling link_reference) replaces the
text with a link to the best-ranked page.

## Pages

- Every note, named by its file name without ` + "`" + `.md` + "`" + `.
- Every link target that names no note ("Unresolved"), once per vault.

## Where text is never marked

1. Fenced code blocks, closed or running to the end of the note.
2. ` + "`" + `[[wikilinks]]` + "`" + ` and ` + "`" + `[bracketed]` + "`" + ` text on one line.
3. Inline code.
4. Hashtags (` + "`" + `#tag` + "`" + `).
5. Bare URLs starting with ` + "`" + `http://` + "`" + `, ` + "`" + `https://` + "`" + ` or ` + "`" + `www.` + "`" + `.

Matching is case-insensitive. When two marks overlap only the first is kept.

## Ranking (lookup_pages)

Queries of one character or less return nothing. Otherwise strategies are
tried in this order and their results concatenated without duplicates; within
a strategy shorter names come first:

1. Exact name (first match only)
2. Name starts with the query
3. Name contains the query
4. Name contains the query with spaces, hyphens, periods and underscores removed
5. Wildcard: whitespace in the query matches anything; a period matches a period followed by anything
6. Every space-separated word of the query appears in the name

## Offsets

` + "`" + `start` + "`" + ` and ` + "`" + `end` + "`" + ` are byte offsets into the note file as returned by
find_unlinked.
`
