package gqcore

// LegalNotice provides license notices for gqcore itself and the
// third-party dependencies it ships with.
const LegalNotice = `gqcore

Licensed under the terms of the MIT License.

================================================================================
gqcore depends on the following third-party software:
================================================================================

github.com/spf13/cobra, github.com/spf13/pflag - Apache License 2.0
github.com/google/uuid - BSD 3-Clause License
github.com/fsnotify/fsnotify - BSD 3-Clause License
github.com/fatih/color, github.com/mattn/go-isatty, github.com/mattn/go-colorable - MIT License
github.com/pkg/errors - BSD 2-Clause License
github.com/dustin/go-humanize - MIT License
github.com/rwcarlsen/goexif - BSD 2-Clause License
github.com/gabriel-vasile/mimetype - MIT License
golang.org/x/sys, golang.org/x/text, golang.org/x/net - BSD 3-Clause License
gopkg.in/yaml.v3 - MIT License and Apache License 2.0
`
