// Package telegram provides Telegram Bot API integration for sending survey summaries.
//
// The package sends HTML-formatted messages via the Bot API's sendMessage method
// using plain HTTP requests.
//
// Authentication requires a bot token (from @BotFather) and chat ID.
package telegram
