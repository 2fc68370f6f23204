package help

const ColdstartYAML = `# llm-doc-digest Quick Start

purpose: "Fetch library documentation and reduce it to a small labeled digest for an LLM"

modes:
  code: "Code Examples (5) + API Signatures (3) + Important Notes (3)"
  info: "Examples (2) + Overview paragraphs (3) + Important Notes (3)"

commands:
  by_name: |
    llm-doc-digest digest --library better-auth --topic sessions

  by_id: |
    llm-doc-digest digest --id /better-auth/better-auth --topic "social providers" --mode info

  next_page: |
    llm-doc-digest digest --id /vercel/next.js --topic routing --page 2

  with_budget_report: |
    llm-doc-digest digest --library react --topic hooks --verbose

  structured_output: |
    llm-doc-digest digest --library prisma --format yaml --fields text,outcome,report

  mcp_server: |
    llm-doc-digest digest --library zod --transport mcp   # needs upstream.mcp_command in the config

  history: |
    llm-doc-digest digest --library hono --history
    llm-doc-digest history --limit 10

channels:
  stdout: "The digest (text) or the full result (--format yaml|json)"
  stderr: "JSON logs, and the token budget report with --verbose"

fallbacks:
  - "Fetch failed or timed out: best matching local reference entry, verbatim"
  - "No local match: fixed 'no local reference available' message"
  - "Nothing extractable: head-truncated excerpt with a truncation marker"
  - "Empty document: fixed notice with a truncation marker"

config:
  search_path:
    - "./llm-doc-digest.yaml"
    - "~/.config/llm-doc-digest/config.yaml"
  env:
    - "CONTEXT7_API_KEY (read from .env too)"
  example: |
    upstream:
      transport: exec          # exec | mcp
      timeout: 30s
    extraction:
      truncate_chars: 500
      code: {code_blocks: 5, signatures: 3, notes: 3}
    profiles:
      - name: better-auth
        aliases: [betterauth]
        id: /better-auth/better-auth
        signature_prefixes: ["auth.api.", "authClient."]
    history:
      enabled: false

error_behavior:
  - "Exit codes: 0=digest produced (any path), 1=library not resolved, 2=bad flags or config"
`
