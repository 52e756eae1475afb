// Package preview renders a human readable preview of an email template.
//
// A preview shows who the template would be sent to, its subject, its body with
// each placeholder replaced by a marker such as $NAME, and which placeholders
// the body uses. Placeholders outside the permitted set are shown as
// $INVALID_NAME and reported, together with any unusable recipients, in a
// trailing Errors section:
//
//	# To
//
//	    alice@example.com
//
//	# Subject
//
//	    Welcome
//	...
//
// The mime format writes the same template as an RFC 822 message with a plain
// text and a sanitized HTML part instead.
package preview
