// Package notifier provides notification channels for new election surveys.
//
// The notifier package posts survey summaries to a Discord webhook (the primary
// channel), Telegram, and Twitter. Multi fans a survey out to several channels,
// spacing deliveries with a rate limiter, and a dry-run notifier prints what
// would be sent without contacting any service.
package notifier
