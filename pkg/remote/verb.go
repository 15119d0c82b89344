package remote

// handler is invoked for one parsed command. It writes its response
// directly to req.conn (via writeLine/writeEntries) and returns an error
// to report as free-form response text; the caller appends the
// terminator regardless of outcome.
type handler func(req *request) error

// verb is one entry in the remote-control command table: a short and/or
// long invocation spelling, whether it takes an embedded argument,
// whether it prefers to be passed on the command line of a freshly
// spawned process rather than sent to a running one (startup-control
// verbs like opening a path or setting geometry, as opposed to verbs
// that only make sense against an instance already showing something),
// and the handler it dispatches to.
type verb struct {
	short         string
	long          string
	needsArgument bool
	startup       bool
	handler       handler
}

// verbTable is the static command table the server consults for every
// parsed command. Order mirrors the categories called out in the
// external-interface contract: file/collection, navigation, slideshow,
// cache, selection, query, config, window control, misc.
var verbTable = []verb{
	// File/collection operations.
	{short: "-o", long: "--open", needsArgument: true, startup: true, handler: handleOpen},
	{long: "--load", needsArgument: true, startup: true, handler: handleLoad},
	{long: "--view-in-new-window", needsArgument: true, startup: true, handler: handleViewInNewWindow},

	// Navigation.
	{short: "-n", long: "--next", handler: handleNext},
	{short: "-b", long: "--back", handler: handlePrev},
	{long: "--first", handler: handleFirst},
	{long: "--last", handler: handleLast},
	{long: "--page-next", handler: handlePageNext},
	{long: "--page-prev", handler: handlePagePrev},

	// Slideshow control.
	{short: "-s", long: "--slideshow", startup: true, handler: handleSlideshowToggle},
	{short: "-ss", long: "--slideshow-start", startup: true, handler: handleSlideshowStart},
	{short: "-sS", long: "--slideshow-stop", handler: handleSlideshowStop},
	{short: "-d", long: "--delay", needsArgument: true, startup: true, handler: handleSlideshowDelay},

	// Cache operations.
	{long: "--thumb-clear", needsArgument: true, handler: handleThumbClear},
	{long: "--thumb-clean", needsArgument: true, handler: handleThumbClean},
	{long: "--render", needsArgument: true, handler: handleRender},
	{long: "--render-recurse", needsArgument: true, handler: handleRenderRecurse},
	{long: "--render-progress", needsArgument: true, handler: handleRenderProgress},
	{long: "--render-cancel", needsArgument: true, handler: handleRenderCancel},
	{long: "--sim", needsArgument: true, handler: handleSim},
	{long: "--metadata-clean", needsArgument: true, handler: handleMetadataClean},

	// Selection operations.
	{long: "--get-selection", handler: handleGetSelection},
	{long: "--selection-add", needsArgument: true, handler: handleSelectionAdd},
	{long: "--selection-remove", needsArgument: true, handler: handleSelectionRemove},
	{long: "--selection-clear", handler: handleSelectionClear},

	// Query.
	{long: "--get-filelist", handler: handleGetFilelist},
	{long: "--get-filelist-recurse", needsArgument: true, handler: handleGetFilelistRecurse},
	{long: "--get-collection", needsArgument: true, handler: handleGetCollection},
	{long: "--get-collection-list", handler: handleGetCollectionList},
	{long: "--get-window-list", handler: handleGetWindowList},
	{long: "--get-sidecars", handler: handleGetSidecars},
	{long: "--get-file-info", handler: handleGetFileInfo},
	{long: "--get-destination", handler: handleGetDestination},
	{long: "--get-rectangle", handler: handleGetRectangle},
	{long: "--get-render-intent", handler: handleGetRenderIntent},
	{long: "--pixel-info", handler: handlePixelInfo},

	// Config.
	{long: "--config-load", needsArgument: true, handler: handleConfigLoad},

	// Window control.
	{long: "--new-window", needsArgument: true, startup: true, handler: handleNewWindow},
	{long: "--close-window", handler: handleCloseWindow},
	{long: "--raise", handler: handleRaise},
	{long: "--geometry", needsArgument: true, startup: true, handler: handleGeometry},
	{short: "-f", long: "--fullscreen", startup: true, handler: handleFullscreenToggle},

	// Output mode and miscellaneous.
	{long: "--print0", handler: handlePrint0},
	{short: "-q", long: "--quit", handler: handleQuit},
	{long: "--action", needsArgument: true, handler: handleAction},
	{long: "--action-list", handler: handleActionList},
}

// findVerb looks up the entry matching text, which may be a short or
// long form spelling, ignoring any trailing `:argument` (already split
// off by the caller).
func findVerb(name string) (verb, bool) {
	for _, v := range verbTable {
		if v.short == name || v.long == name {
			return v, true
		}
	}
	return verb{}, false
}
