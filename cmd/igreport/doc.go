// Command igreport extracts usernames and follower counts from profile
// screenshots and lines them up against an ordered list of expected accounts.
//
// A typical run:
//
//	igreport session start --date today
//	igreport order set sakura9neko otheruser
//	igreport ingest shots/*.png
//	igreport correct "username=otheruser followers=1.2k"
//	igreport review
//	igreport session end
//
// Configuration lives in ~/.config/igreport/config.toml (see `igreport config
// init`). Every command acts on behalf of one actor, taken from --actor,
// IGREPORT_ACTOR, or cli.default_actor.
package main
