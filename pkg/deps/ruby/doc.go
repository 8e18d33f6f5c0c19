// Package ruby parses Bundler metadata.
//
// Gemfile.lock is an indentation-structured file. Source sections (GEM, GIT,
// PATH) list resolved gems at four spaces and each gem's requirements at six
// spaces; the DEPENDENCIES section lists what the Gemfile declares:
//
//	GEM
//	  remote: https://rubygems.org/
//	  specs:
//	    nokogiri (1.15.4-x86_64-linux)
//	      racc (~> 1.4)
//	    racc (1.7.1)
//
//	DEPENDENCIES
//	  nokogiri
//
// A platform suffix on the version ("-x86_64-linux") becomes the record
// classifier, so platform-specific builds of one gem stay distinct.
package ruby
