/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package config loads dungeond's configuration from the environment.
//
// A .env file in the working directory is honored when present (via
// godotenv) but never required. Every knob except the bot token has a
// default:
//
//	DISCORD_BOT_TOKEN            required; the process refuses to start
//	                             when it is missing or still set to the
//	                             "your_bot_token_here" placeholder
//	DUNGEOND_PREFIX              command prefix (default ".d ")
//	DUNGEOND_TRIGGER_CHANNEL     trigger voice channel name
//	DUNGEOND_CATEGORY            managed category name (default "DUNGEONS")
//	DUNGEOND_INACTIVITY_TIMEOUT  Go duration before an empty dungeon is
//	                             reclaimed (default 2m)
//	DUNGEOND_LOG_LEVEL           zap level name (default "info")
package config
