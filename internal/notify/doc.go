// Package notify renders transaction records into operator notifications
// and delivers them through a Channel.
//
// Rendering and delivery are separate so the engine can own the dispatch
// order (render, send, mark notified) while channels stay interchangeable:
// SMTP mail, a Notion database, or the log for dry runs.
package notify
