// Package manifest declares a hoist pipeline.
//
// A pipeline file (YAML, "hoist.yaml" by default) lists the containers to
// start, the images to build from local files and repository artifacts, the
// containers to commit, and the tags to apply and push. Every item carries a
// user-chosen id; later phases refer to the results of earlier phases only
// through these ids.
//
// Example:
//
//	provider: remote
//	containers:
//	  - id: db
//	    image: postgres:16
//	    env: {POSTGRES_PASSWORD: secret}
//	    ports: ["5432"]
//	images:
//	  - id: app
//	    name: example/app:1.0
//	    files:
//	      - source: docker/Dockerfile
//	      - source: target/app.jar
//	        dest: app.jar
//	    keep: true
//	tags:
//	  - id: app
//	    tags: [example/app:latest]
//	    push: true
//	    registry: registry.example.com
package manifest
