// Package source fetches raw transaction observations from financial
// institutions.
//
// The engine only sees the Adapter interface. Scraping, authentication and
// the institution-specific error taxonomy stay behind it; a failed fetch is
// reported as a *FetchError carrying a machine-readable failure kind and
// nothing more.
//
// Two adapters ship with the package:
//
//   - CommandAdapter runs an external scraper process that speaks the
//     israeli-bank-scrapers result format as JSON over stdin/stdout.
//   - FixtureAdapter serves canned results from a JSON file, for dry runs
//     and tests.
package source
