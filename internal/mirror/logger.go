package mirror

import "github.com/ccfrost/albumsync/internal/logging"

var logger = logging.New()
