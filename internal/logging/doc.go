// Package logging provides a small leveled logger for the contact photo
// service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is read once from the DEBUG or LOG_LEVEL environment
// variables. Messages that carry request context (address book, card,
// error) can be logged with [Fields] via [WarnFields] and [ErrorFields],
// which render the fields as sorted key=value pairs after the message.
package logging
