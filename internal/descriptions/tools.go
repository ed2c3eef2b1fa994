// Package descriptions holds the long-form MCP tool descriptions shown to
// clients when they list tools.
package descriptions

const (
	ExtractFilingFieldsDescription = `Extract structured company facts from an annual report or SEC-style filing PDF.

**When to use:** Need company name, company type, address, auditor and audit opinion, senior management, directors, employees, revenue, shares traded, trading symbol, or line of business from a filing without reading it end to end.

**Why it's useful:** Segments the filing by its headings, recognizes entities section by section, and scores every candidate so each field comes back with a confidence and the exact text it was taken from.

**Examples:**
• Build a company profile: "Extract the fields from acme-10k-2023.pdf"
• Check an auditor change: "Who audited globex-annual-report.pdf?"
• Headcount lookup: "How many employees does initech-2022.pdf report?"

**Common workflows:**
1. Single filing: validate_filing → extract_filing_fields → read fields with confidence
2. Directory review: find_filings → extract_filing_fields for each path → compare results
3. Review queue: extract_filing_fields → collect fields marked low_confidence → confirm by hand

**Best practices:** Treat fields with not_found as absent rather than empty. A degraded result means a section or page could not be analyzed; the degradations list says which one.`

	ValidateFilingDescription = `Check that a filing PDF exists, is within limits, and can be parsed.

**When to use:** Before extracting from an unknown or user-supplied file, or when an extraction fails as unreadable.

**Why it's useful:** Catches missing, oversized, non-PDF, and corrupted files up front and reports the page count of the ones that parse.

**Examples:**
• Upload check: "Validate filings/upload-7731.pdf before extraction"
• Triage: "Is broken-annual-report.pdf actually a PDF?"

**Common workflows:**
1. Intake: find_filings → validate_filing on each → extract the valid ones

**Best practices:** Paths are resolved against the configured filing directory; relative paths are allowed.`

	FindFilingsDescription = `List the PDF filings available under the configured directory.

**When to use:** Discover which filings can be extracted, or find the exact path of a filing before calling another tool.

**Why it's useful:** Walks the directory tree, skips files that fail basic checks, and returns paths in a stable order.

**Examples:**
• Inventory: "What filings are available?"
• Subfolder listing: "List the filings under 2023/"

**Common workflows:**
1. Batch review: find_filings → extract_filing_fields for each path

**Best practices:** Leave directory empty to list the whole filing root. Subdirectories must stay inside it.`

	FilingServerInfoDescription = `Show server configuration, enabled fields, available tools, and the filings found in the default directory.

**When to use:** At the start of a session to learn what this server can extract and where it reads filings from.

**Why it's useful:** Gives an overview of the extraction setup in one call so later requests can use the right paths and field names.

**Examples:**
• Orientation: "What can this filing server do?"

**Common workflows:**
1. Getting started: filing_server_info → find_filings → extract_filing_fields

**Best practices:** Call once per session; the configuration does not change while the server runs.`
)
