// Package verification drives one catalog record through the correction loop.
//
// The loop is an explicit bounded iteration over a step function. Each step
// inspects the session and either continues to the next phase or terminates
// with an outcome:
//
//	pending -> checking -> awaiting_correction -> checking -> ...
//	                    \-> final_validation -> verified
//
// Critical findings are flagged without consulting the oracle. Warnings are
// sent to the oracle for a correction proposal, which is applied and
// re-checked. Records with no failing findings must pass final validation to
// be verified. Oracle failures end the session with OutcomeRetry and leave the
// stored record untouched.
package verification
