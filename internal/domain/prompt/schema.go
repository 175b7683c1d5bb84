// Package prompt builds completion-service prompts at three size
// tiers, selecting the smallest tier that fits the token budget.
package prompt

// fullSchema is the static resource description for the full tier.
const fullSchema = `=== Process Chain Database Schema ===

TABLES:
- RSPCCHAIN (process chain definitions):
  CHAIN_ID (TEXT) - primary key, e.g. 'PC_SALES_DAILY', 'PC_INVENTORY_WEEKLY'
  PROCESS_TYPE (TEXT) - 'LOADING', 'DTP', 'CHAIN', 'ATTRIBUTE_CHANGE'
  PROCESS_VARIANT_NAME (TEXT) - variant name
  VERSION (TEXT) - version number
  SEQNO (INTEGER) - sequence number in chain

- RSPCLOGCHAIN (execution logs):
  CHAIN_ID (TEXT) - foreign key to RSPCCHAIN
  LOG_ID (TEXT) - unique execution identifier
  STATUS_OF_PROCESS (TEXT) - 'SUCCESS', 'FAILED', 'RUNNING', 'WAITING', 'CANCELLED'
  CURRENT_DATE (TEXT) - execution date (YYYY-MM-DD)
  TIME (TEXT) - execution time (HH:MM:SS)
  CREATED_TIMESTAMP (TEXT) - full timestamp

OPTIMIZED VIEWS (USE THESE FOR QUERIES):
- VW_LATEST_CHAIN_RUNS - latest execution per chain:
  CHAIN_ID, PROCESS_TYPE, LOG_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME, rn

- VW_CHAIN_SUMMARY - performance statistics:
  CHAIN_ID, total_runs, successful_runs, failed_runs, success_rate_percent, last_run_time

- VW_TODAYS_ACTIVITY - today's activity only:
  CHAIN_ID, LOG_ID, STATUS_OF_PROCESS, TIME

IMPORTANT RULES:
- Always use VW_LATEST_CHAIN_RUNS with "rn = 1" for current status
- Use VW_CHAIN_SUMMARY for performance analysis
- Use VW_TODAYS_ACTIVITY for today's data only
- Column name is STATUS_OF_PROCESS (not STATUS)`

// compactSchema is the abbreviated description for the compact tier.
const compactSchema = `Process chain tables:
- VW_LATEST_CHAIN_RUNS: CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME (use rn = 1)
- VW_CHAIN_SUMMARY: CHAIN_ID, total_runs, success_rate_percent, failed_runs
- VW_TODAYS_ACTIVITY: CHAIN_ID, STATUS_OF_PROCESS, TIME
Status values: SUCCESS, FAILED, RUNNING, WAITING`

// ultraSchema is the single-line resource list for the last-resort tier.
const ultraSchema = `Tables: VW_LATEST_CHAIN_RUNS (CHAIN_ID, STATUS_OF_PROCESS, rn=1), VW_CHAIN_SUMMARY (success_rate_percent)`
