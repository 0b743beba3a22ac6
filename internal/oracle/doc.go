// Package oracle adapts the chat-completion client into the three questions
// the verification loop asks: propose a correction, validate a clean record,
// and classify a food into the taxonomy.
//
// Responses are decoded and validated once at this boundary. Callers receive
// a Proposal or NoCorrection verdict, a Validation, or a Classification. Any
// transport failure or malformed payload is reported as
// services.ErrOracleUnavailable so the record can be retried later.
package oracle
