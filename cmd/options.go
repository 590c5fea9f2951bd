package main

// Options is the root command. Struct tags are interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config  string `short:"f" long:"config" description:"runtime settings file (YAML or JSON), defaults to $SETTINGS_FILE"`
	EnvFile string `long:"env-file" description:"dotenv file to load" default:".env"`
	Model   string `short:"m" long:"model" description:"model override for this run"`
	Session string `short:"s" long:"session" description:"session id to continue"`

	Chat     *ChatCmd     `command:"chat" description:"Interactive research chat"`
	Ask      *AskCmd      `command:"ask" description:"Answer a single request and exit"`
	List     *ListCmd     `command:"list" description:"List stored sessions"`
	Delete   *DeleteCmd   `command:"delete" description:"Delete stored sessions"`
	Settings *SettingsCmd `command:"settings" description:"Show or update the runtime settings file"`
}

func newOptions() *Options {
	o := &Options{}
	o.Chat = &ChatCmd{root: o}
	o.Ask = &AskCmd{root: o}
	o.List = &ListCmd{root: o}
	o.Delete = &DeleteCmd{root: o}
	o.Settings = &SettingsCmd{root: o}
	return o
}
