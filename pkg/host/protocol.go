package host

import "encoding/json"

// The bridge speaks newline-delimited JSON over a loopback TCP socket to
// the automation host's listener. One request, one response, strictly
// sequential. There is no authentication: the listener trusts localhost.
//
// Methods:
//
//	document.open   {path}                                  -> {}
//	document.save   {path}                                  -> {}
//	document.close  {}                                      -> {}
//	document.text   {}                                      -> {text}
//	tracking.set    {enabled}                               -> {}
//	author.set      {name}                                  -> {}
//	replace.all     {find, replace, match_case,
//	                 whole_word, regex}                     -> {count}
//	text.find       {text, match_case, whole_word, regex}   -> {found, start, end}
//	annotate        {start, end, variant, comment, author}  -> {}
//	image.insert    {start, end, path, width, height}       -> {}
//	image.size      {path}                                  -> {width, height}
//	changes.count   {}                                      -> {count}
//	changes.list    {from}                                  -> {entries}
//	change.set      {index, property, value}                -> {}
//
// changes.list entries are raw property maps: the host exposes redline
// attributes under version-dependent names, decoded in adapter.go.
type request struct {
	ID     uint64         `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
