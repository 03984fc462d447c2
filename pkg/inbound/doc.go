// Package inbound receives reply notifications and moves the sender's
// contact out of the sequence.
//
// The webhook accepts
//
//	POST /webhooks/inbound
//	{"from":"jane@example.com","to":"jad@example.com","subject":"Re: ...","text":"...","signal":""}
//
// Providers that only forward the HTML part may send "html" instead of
// "text"; it is reduced to plain text before classification.
//
// An explicit signal (reply_positive, reply_negative or reply_ooo) wins;
// otherwise the Classifier decides. The contact is advanced through the
// sequence machine and persisted the same way the scheduler does it, so a
// replied or stopped contact is never due again. Positive replies are then
// handed to FollowUps, which sends the R1s template.
//
// Status codes: 200 on success, 400 for a malformed payload, 401 for a
// wrong secret, 404 for an unknown sender, 409 when the contact already left
// the sequence and 500 for store failures.
package inbound
